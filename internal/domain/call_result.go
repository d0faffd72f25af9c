package domain

import (
	"fmt"

	"github.com/perone/euclidesdb/pkg/e"
)

// Call — удалённая операция, к которой относится результат.
type Call string

const (
	CallAddImage           Call = "AddImage"
	CallRemoveImage        Call = "RemoveImage"
	CallFindSimilarByImage Call = "FindSimilarByImage"
	CallFindSimilarByID    Call = "FindSimilarById"
	CallShutdown           Call = "Shutdown"
)

// CallResult хранит результат одного вызова: либо Reply, либо Err.
// ImageID и ImagePath заполняются, если вызов относится к изображению.
type CallResult struct {
	Call      Call
	ImageID   *ImageID
	ImagePath string
	Reply     any
	Err       error
}

func NewSuccess(call Call, reply any) CallResult {
	return CallResult{Call: call, Reply: reply}
}

func NewFailure(call Call, err error) CallResult {
	return CallResult{Call: call, Err: err}
}

// WithImage привязывает результат к изображению.
func (r CallResult) WithImage(id *ImageID, path string) CallResult {
	r.ImageID = id
	r.ImagePath = path
	return r
}

func (r CallResult) OK() bool {
	return r.Err == nil
}

// Kind возвращает класс ошибки (DecodeError, TimeoutError, ...) или пустую строку.
func (r CallResult) Kind() string {
	return e.Kind(r.Err)
}

// Summary кратко описывает исход для логов и отчётов.
func (r CallResult) Summary() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Kind(), r.Err)
	}

	switch reply := r.Reply.(type) {
	case *AddImageReply:
		return fmt.Sprintf("num model space added: %d", reply.VectorsAdded())
	case *RemoveImageReply:
		return fmt.Sprintf("removed image %d", reply.ImageID)
	case *FindSimilarReply:
		return fmt.Sprintf("%d model space(s), up to %d match(es)", len(reply.Results), reply.MaxMatches())
	case *ShutdownReply:
		return fmt.Sprintf("shutdown accepted: %t", reply.Shutdown)
	default:
		return "ok"
	}
}

func (r CallResult) AddReply() (*AddImageReply, bool) {
	reply, ok := r.Reply.(*AddImageReply)
	return reply, ok
}

func (r CallResult) RemoveReply() (*RemoveImageReply, bool) {
	reply, ok := r.Reply.(*RemoveImageReply)
	return reply, ok
}

func (r CallResult) FindReply() (*FindSimilarReply, bool) {
	reply, ok := r.Reply.(*FindSimilarReply)
	return reply, ok
}

func (r CallResult) ShutdownReply() (*ShutdownReply, bool) {
	reply, ok := r.Reply.(*ShutdownReply)
	return reply, ok
}
