// Package proto содержит контракт сервиса EuclidesDB (euclidesproto.proto):
// дескриптор файла, типизированные сообщения и gRPC-клиент/сервер поверх dynamicpb.
package proto

import (
	protobuf "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	packageName = "euclidesproto"
	fileName    = "euclidesproto.proto"

	SimilarServiceName = packageName + ".Similar"
)

// File содержит дескриптор euclidesproto.proto, собранный при инициализации пакета.
var File protoreflect.FileDescriptor

var (
	addImageRequestDesc             protoreflect.MessageDescriptor
	addImageReplyDesc               protoreflect.MessageDescriptor
	removeImageRequestDesc          protoreflect.MessageDescriptor
	removeImageReplyDesc            protoreflect.MessageDescriptor
	findSimilarImageRequestDesc     protoreflect.MessageDescriptor
	findSimilarImageByIdRequestDesc protoreflect.MessageDescriptor
	findSimilarImageReplyDesc       protoreflect.MessageDescriptor
	shutdownRequestDesc             protoreflect.MessageDescriptor
	shutdownReplyDesc               protoreflect.MessageDescriptor
	callResultEventDesc             protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), new(protoregistry.Files))
	if err != nil {
		panic("euclidesproto: build file descriptor: " + err.Error())
	}
	File = fd

	msgs := fd.Messages()
	addImageRequestDesc = msgs.ByName("AddImageRequest")
	addImageReplyDesc = msgs.ByName("AddImageReply")
	removeImageRequestDesc = msgs.ByName("RemoveImageRequest")
	removeImageReplyDesc = msgs.ByName("RemoveImageReply")
	findSimilarImageRequestDesc = msgs.ByName("FindSimilarImageRequest")
	findSimilarImageByIdRequestDesc = msgs.ByName("FindSimilarImageByIdRequest")
	findSimilarImageReplyDesc = msgs.ByName("FindSimilarImageReply")
	shutdownRequestDesc = msgs.ByName("ShutdownRequest")
	shutdownReplyDesc = msgs.ByName("ShutdownReply")
	callResultEventDesc = msgs.ByName("CallResultEvent")
}

type (
	fieldType  = descriptorpb.FieldDescriptorProto_Type
	fieldLabel = descriptorpb.FieldDescriptorProto_Label
)

const (
	tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tFloat   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE

	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

func field(name string, number int32, typ fieldType, label fieldLabel) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   protobuf.String(name),
		Number: protobuf.Int32(number),
		Type:   typ.Enum(),
		Label:  label.Enum(),
	}
}

func messageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := field(name, number, tMessage, repeated)
	f.TypeName = protobuf.String("." + packageName + "." + typeName)
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  protobuf.String(name),
		Field: fields,
	}
}

func method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       protobuf.String(name),
		InputType:  protobuf.String("." + packageName + "." + in),
		OutputType: protobuf.String("." + packageName + "." + out),
	}
}

// fileDescriptorProto повторяет euclidesproto.proto.
func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    protobuf.String(fileName),
		Package: protobuf.String(packageName),
		Syntax:  protobuf.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("ItemVectors",
				field("model", 1, tString, optional),
				field("predictions", 2, tFloat, repeated),
				field("features", 3, tFloat, repeated),
			),
			message("AddImageRequest",
				field("image_id", 1, tInt32, optional),
				field("models", 2, tString, repeated),
				field("image_data", 3, tBytes, optional),
				field("image_metadata", 4, tString, optional),
			),
			message("AddImageReply",
				messageField("vectors", 1, "ItemVectors"),
			),
			message("RemoveImageRequest",
				field("image_id", 1, tInt32, optional),
			),
			message("RemoveImageReply",
				field("image_id", 1, tInt32, optional),
			),
			message("FindSimilarImageRequest",
				field("top_k", 1, tInt32, optional),
				field("models", 2, tString, repeated),
				field("image_data", 3, tBytes, optional),
			),
			message("FindSimilarImageByIdRequest",
				field("top_k", 1, tInt32, optional),
				field("models", 2, tString, repeated),
				field("image_id", 3, tInt32, optional),
			),
			message("SearchResults",
				field("model", 1, tString, optional),
				field("top_k_ids", 2, tInt32, repeated),
				field("distances", 3, tFloat, repeated),
			),
			message("FindSimilarImageReply",
				messageField("results", 1, "SearchResults"),
			),
			message("ShutdownRequest",
				field("shutdown_type", 1, tInt32, optional),
			),
			message("ShutdownReply",
				field("shutdown", 1, tBool, optional),
			),
			message("CallResultEvent",
				field("event_id", 1, tString, optional),
				field("event_timestamp", 2, tInt64, optional),
				field("run_id", 3, tString, optional),
				field("seq", 4, tInt32, optional),
				field("call", 5, tString, optional),
				field("image_id", 6, tInt32, optional),
				field("has_image_id", 7, tBool, optional),
				field("image_path", 8, tString, optional),
				field("success", 9, tBool, optional),
				field("error_kind", 10, tString, optional),
				field("error", 11, tString, optional),
				field("summary", 12, tString, optional),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: protobuf.String("Similar"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("FindSimilarImage", "FindSimilarImageRequest", "FindSimilarImageReply"),
				method("FindSimilarImageById", "FindSimilarImageByIdRequest", "FindSimilarImageReply"),
				method("AddImage", "AddImageRequest", "AddImageReply"),
				method("RemoveImage", "RemoveImageRequest", "RemoveImageReply"),
				method("Shutdown", "ShutdownRequest", "ShutdownReply"),
			},
		}},
	}
}
