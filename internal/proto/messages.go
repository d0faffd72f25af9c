package proto

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

type ItemVectors struct {
	Model       string
	Predictions []float32
	Features    []float32
}

type AddImageRequest struct {
	ImageId       int32
	Models        []string
	ImageData     []byte
	ImageMetadata string
}

type AddImageReply struct {
	Vectors []*ItemVectors
}

type RemoveImageRequest struct {
	ImageId int32
}

type RemoveImageReply struct {
	ImageId int32
}

type FindSimilarImageRequest struct {
	TopK      int32
	Models    []string
	ImageData []byte
}

type FindSimilarImageByIdRequest struct {
	TopK    int32
	Models  []string
	ImageId int32
}

type SearchResults struct {
	Model     string
	TopKIds   []int32
	Distances []float32
}

type FindSimilarImageReply struct {
	Results []*SearchResults
}

type ShutdownRequest struct {
	ShutdownType int32
}

type ShutdownReply struct {
	Shutdown bool
}

// helpers

func fieldOf(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

func setInt32(m protoreflect.Message, name protoreflect.Name, v int32) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfInt32(v))
}

func setInt64(m protoreflect.Message, name protoreflect.Name, v int64) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfInt64(v))
}

func setBool(m protoreflect.Message, name protoreflect.Name, v bool) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfBool(v))
}

func setString(m protoreflect.Message, name protoreflect.Name, v string) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
}

func setBytes(m protoreflect.Message, name protoreflect.Name, v []byte) {
	if len(v) == 0 {
		return
	}
	m.Set(fieldOf(m, name), protoreflect.ValueOfBytes(v))
}

func appendStrings(m protoreflect.Message, name protoreflect.Name, vs []string) {
	if len(vs) == 0 {
		return
	}
	l := m.Mutable(fieldOf(m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfString(v))
	}
}

func appendFloats(m protoreflect.Message, name protoreflect.Name, vs []float32) {
	if len(vs) == 0 {
		return
	}
	l := m.Mutable(fieldOf(m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfFloat32(v))
	}
}

func appendInt32s(m protoreflect.Message, name protoreflect.Name, vs []int32) {
	if len(vs) == 0 {
		return
	}
	l := m.Mutable(fieldOf(m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfInt32(v))
	}
}

func getInt32(m protoreflect.Message, name protoreflect.Name) int32 {
	return int32(m.Get(fieldOf(m, name)).Int())
}

func getInt64(m protoreflect.Message, name protoreflect.Name) int64 {
	return m.Get(fieldOf(m, name)).Int()
}

func getBool(m protoreflect.Message, name protoreflect.Name) bool {
	return m.Get(fieldOf(m, name)).Bool()
}

func getString(m protoreflect.Message, name protoreflect.Name) string {
	return m.Get(fieldOf(m, name)).String()
}

func getBytes(m protoreflect.Message, name protoreflect.Name) []byte {
	return m.Get(fieldOf(m, name)).Bytes()
}

func getStrings(m protoreflect.Message, name protoreflect.Name) []string {
	l := m.Get(fieldOf(m, name)).List()
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

func getFloats(m protoreflect.Message, name protoreflect.Name) []float32 {
	l := m.Get(fieldOf(m, name)).List()
	out := make([]float32, l.Len())
	for i := range out {
		out[i] = float32(l.Get(i).Float())
	}
	return out
}

func getInt32s(m protoreflect.Message, name protoreflect.Name) []int32 {
	l := m.Get(fieldOf(m, name)).List()
	out := make([]int32, l.Len())
	for i := range out {
		out[i] = int32(l.Get(i).Int())
	}
	return out
}

// conversions

func (x *ItemVectors) fill(m protoreflect.Message) {
	setString(m, "model", x.Model)
	appendFloats(m, "predictions", x.Predictions)
	appendFloats(m, "features", x.Features)
}

func itemVectorsFrom(m protoreflect.Message) *ItemVectors {
	return &ItemVectors{
		Model:       getString(m, "model"),
		Predictions: getFloats(m, "predictions"),
		Features:    getFloats(m, "features"),
	}
}

func (x *AddImageRequest) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(addImageRequestDesc)
	if x == nil {
		return m
	}
	setInt32(m, "image_id", x.ImageId)
	appendStrings(m, "models", x.Models)
	setBytes(m, "image_data", x.ImageData)
	setString(m, "image_metadata", x.ImageMetadata)
	return m
}

func addImageRequestFrom(m protoreflect.Message) *AddImageRequest {
	return &AddImageRequest{
		ImageId:       getInt32(m, "image_id"),
		Models:        getStrings(m, "models"),
		ImageData:     getBytes(m, "image_data"),
		ImageMetadata: getString(m, "image_metadata"),
	}
}

func (x *AddImageReply) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(addImageReplyDesc)
	if x == nil {
		return m
	}
	if len(x.Vectors) > 0 {
		l := m.Mutable(fieldOf(m, "vectors")).List()
		for _, v := range x.Vectors {
			el := l.NewElement()
			v.fill(el.Message())
			l.Append(el)
		}
	}
	return m
}

func addImageReplyFrom(m protoreflect.Message) *AddImageReply {
	l := m.Get(fieldOf(m, "vectors")).List()
	reply := &AddImageReply{Vectors: make([]*ItemVectors, l.Len())}
	for i := range reply.Vectors {
		reply.Vectors[i] = itemVectorsFrom(l.Get(i).Message())
	}
	return reply
}

func (x *RemoveImageRequest) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(removeImageRequestDesc)
	if x != nil {
		setInt32(m, "image_id", x.ImageId)
	}
	return m
}

func removeImageRequestFrom(m protoreflect.Message) *RemoveImageRequest {
	return &RemoveImageRequest{ImageId: getInt32(m, "image_id")}
}

func (x *RemoveImageReply) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(removeImageReplyDesc)
	if x != nil {
		setInt32(m, "image_id", x.ImageId)
	}
	return m
}

func removeImageReplyFrom(m protoreflect.Message) *RemoveImageReply {
	return &RemoveImageReply{ImageId: getInt32(m, "image_id")}
}

func (x *FindSimilarImageRequest) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(findSimilarImageRequestDesc)
	if x == nil {
		return m
	}
	setInt32(m, "top_k", x.TopK)
	appendStrings(m, "models", x.Models)
	setBytes(m, "image_data", x.ImageData)
	return m
}

func findSimilarImageRequestFrom(m protoreflect.Message) *FindSimilarImageRequest {
	return &FindSimilarImageRequest{
		TopK:      getInt32(m, "top_k"),
		Models:    getStrings(m, "models"),
		ImageData: getBytes(m, "image_data"),
	}
}

func (x *FindSimilarImageByIdRequest) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(findSimilarImageByIdRequestDesc)
	if x == nil {
		return m
	}
	setInt32(m, "top_k", x.TopK)
	appendStrings(m, "models", x.Models)
	setInt32(m, "image_id", x.ImageId)
	return m
}

func findSimilarImageByIdRequestFrom(m protoreflect.Message) *FindSimilarImageByIdRequest {
	return &FindSimilarImageByIdRequest{
		TopK:    getInt32(m, "top_k"),
		Models:  getStrings(m, "models"),
		ImageId: getInt32(m, "image_id"),
	}
}

func (x *FindSimilarImageReply) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(findSimilarImageReplyDesc)
	if x == nil || len(x.Results) == 0 {
		return m
	}
	l := m.Mutable(fieldOf(m, "results")).List()
	for _, r := range x.Results {
		el := l.NewElement()
		sub := el.Message()
		setString(sub, "model", r.Model)
		appendInt32s(sub, "top_k_ids", r.TopKIds)
		appendFloats(sub, "distances", r.Distances)
		l.Append(el)
	}
	return m
}

func findSimilarImageReplyFrom(m protoreflect.Message) *FindSimilarImageReply {
	l := m.Get(fieldOf(m, "results")).List()
	reply := &FindSimilarImageReply{Results: make([]*SearchResults, l.Len())}
	for i := range reply.Results {
		sub := l.Get(i).Message()
		reply.Results[i] = &SearchResults{
			Model:     getString(sub, "model"),
			TopKIds:   getInt32s(sub, "top_k_ids"),
			Distances: getFloats(sub, "distances"),
		}
	}
	return reply
}

func (x *ShutdownRequest) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(shutdownRequestDesc)
	if x != nil {
		setInt32(m, "shutdown_type", x.ShutdownType)
	}
	return m
}

func shutdownRequestFrom(m protoreflect.Message) *ShutdownRequest {
	return &ShutdownRequest{ShutdownType: getInt32(m, "shutdown_type")}
}

func (x *ShutdownReply) message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(shutdownReplyDesc)
	if x != nil {
		setBool(m, "shutdown", x.Shutdown)
	}
	return m
}

func shutdownReplyFrom(m protoreflect.Message) *ShutdownReply {
	return &ShutdownReply{Shutdown: getBool(m, "shutdown")}
}
