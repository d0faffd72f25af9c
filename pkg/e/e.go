package e

import (
	"errors"
	"fmt"
)

var (
	// Ошибки подготовки изображения
	ErrResourceNotFound = fmt.Errorf("resource not found")
	ErrDecode           = fmt.Errorf("decode error")
	ErrCropBounds       = fmt.Errorf("crop out of bounds")
	ErrEncode           = fmt.Errorf("encode error")
	ErrEmptyImage       = fmt.Errorf("prepared image is empty")

	// Ошибки удалённых вызовов
	ErrRemoteCall      = fmt.Errorf("remote call failed")
	ErrServiceRejected = fmt.Errorf("service rejected request")
	ErrTimeout         = fmt.Errorf("call timed out")
	ErrChannelClosed   = fmt.Errorf("channel closed")

	// Конфигурация
	ErrInvalidConfig        = fmt.Errorf("invalid config")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")
)

// kinds задаёт порядок проверки при классификации ошибки.
var kinds = []struct {
	err  error
	name string
}{
	{ErrChannelClosed, "ChannelClosedError"},
	{ErrTimeout, "TimeoutError"},
	{ErrServiceRejected, "ServiceRejected"},
	{ErrRemoteCall, "RemoteCallError"},
	{ErrResourceNotFound, "ResourceNotFound"},
	{ErrDecode, "DecodeError"},
	{ErrCropBounds, "CropBoundsError"},
	{ErrEncode, "EncodeError"},
	{ErrEmptyImage, "EmptyImage"},
	{ErrInvalidConfig, "InvalidConfig"},
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Kind возвращает имя класса ошибки из таксономии или "Unknown".
func Kind(err error) string {
	if err == nil {
		return ""
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "Unknown"
}
