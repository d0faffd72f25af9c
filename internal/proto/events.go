package proto

import (
	protobuf "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// CallResultEvent — событие о результате одного вызова, публикуется в Kafka.
type CallResultEvent struct {
	EventId        string
	EventTimestamp int64
	RunId          string
	Seq            int32
	Call           string
	ImageId        int32
	HasImageId     bool
	ImagePath      string
	Success        bool
	ErrorKind      string
	Error          string
	Summary        string
}

func (x *CallResultEvent) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(callResultEventDesc)
	setString(m, "event_id", x.EventId)
	setInt64(m, "event_timestamp", x.EventTimestamp)
	setString(m, "run_id", x.RunId)
	setInt32(m, "seq", x.Seq)
	setString(m, "call", x.Call)
	setInt32(m, "image_id", x.ImageId)
	setBool(m, "has_image_id", x.HasImageId)
	setString(m, "image_path", x.ImagePath)
	setBool(m, "success", x.Success)
	setString(m, "error_kind", x.ErrorKind)
	setString(m, "error", x.Error)
	setString(m, "summary", x.Summary)
	return m
}

// Marshal кодирует событие в wire-формат protobuf.
func (x *CallResultEvent) Marshal() ([]byte, error) {
	return protobuf.Marshal(x.message())
}

// UnmarshalCallResultEvent декодирует событие из wire-формата.
func UnmarshalCallResultEvent(data []byte) (*CallResultEvent, error) {
	m := dynamicpb.NewMessage(callResultEventDesc)
	if err := protobuf.Unmarshal(data, m); err != nil {
		return nil, err
	}

	return &CallResultEvent{
		EventId:        getString(m, "event_id"),
		EventTimestamp: getInt64(m, "event_timestamp"),
		RunId:          getString(m, "run_id"),
		Seq:            getInt32(m, "seq"),
		Call:           getString(m, "call"),
		ImageId:        getInt32(m, "image_id"),
		HasImageId:     getBool(m, "has_image_id"),
		ImagePath:      getString(m, "image_path"),
		Success:        getBool(m, "success"),
		ErrorKind:      getString(m, "error_kind"),
		Error:          getString(m, "error"),
		Summary:        getString(m, "summary"),
	}, nil
}
