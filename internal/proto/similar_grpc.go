package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	Similar_FindSimilarImage_FullMethodName     = "/" + SimilarServiceName + "/FindSimilarImage"
	Similar_FindSimilarImageById_FullMethodName = "/" + SimilarServiceName + "/FindSimilarImageById"
	Similar_AddImage_FullMethodName             = "/" + SimilarServiceName + "/AddImage"
	Similar_RemoveImage_FullMethodName          = "/" + SimilarServiceName + "/RemoveImage"
	Similar_Shutdown_FullMethodName             = "/" + SimilarServiceName + "/Shutdown"
)

// SimilarClient — клиент сервиса euclidesproto.Similar.
type SimilarClient interface {
	FindSimilarImage(ctx context.Context, in *FindSimilarImageRequest, opts ...grpc.CallOption) (*FindSimilarImageReply, error)
	FindSimilarImageById(ctx context.Context, in *FindSimilarImageByIdRequest, opts ...grpc.CallOption) (*FindSimilarImageReply, error)
	AddImage(ctx context.Context, in *AddImageRequest, opts ...grpc.CallOption) (*AddImageReply, error)
	RemoveImage(ctx context.Context, in *RemoveImageRequest, opts ...grpc.CallOption) (*RemoveImageReply, error)
	Shutdown(ctx context.Context, in *ShutdownRequest, opts ...grpc.CallOption) (*ShutdownReply, error)
}

type similarClient struct {
	cc grpc.ClientConnInterface
}

func NewSimilarClient(cc grpc.ClientConnInterface) SimilarClient {
	return &similarClient{cc: cc}
}

func (c *similarClient) FindSimilarImage(ctx context.Context, in *FindSimilarImageRequest, opts ...grpc.CallOption) (*FindSimilarImageReply, error) {
	out := dynamicpb.NewMessage(findSimilarImageReplyDesc)
	if err := c.cc.Invoke(ctx, Similar_FindSimilarImage_FullMethodName, in.message(), out, opts...); err != nil {
		return nil, err
	}
	return findSimilarImageReplyFrom(out), nil
}

func (c *similarClient) FindSimilarImageById(ctx context.Context, in *FindSimilarImageByIdRequest, opts ...grpc.CallOption) (*FindSimilarImageReply, error) {
	out := dynamicpb.NewMessage(findSimilarImageReplyDesc)
	if err := c.cc.Invoke(ctx, Similar_FindSimilarImageById_FullMethodName, in.message(), out, opts...); err != nil {
		return nil, err
	}
	return findSimilarImageReplyFrom(out), nil
}

func (c *similarClient) AddImage(ctx context.Context, in *AddImageRequest, opts ...grpc.CallOption) (*AddImageReply, error) {
	out := dynamicpb.NewMessage(addImageReplyDesc)
	if err := c.cc.Invoke(ctx, Similar_AddImage_FullMethodName, in.message(), out, opts...); err != nil {
		return nil, err
	}
	return addImageReplyFrom(out), nil
}

func (c *similarClient) RemoveImage(ctx context.Context, in *RemoveImageRequest, opts ...grpc.CallOption) (*RemoveImageReply, error) {
	out := dynamicpb.NewMessage(removeImageReplyDesc)
	if err := c.cc.Invoke(ctx, Similar_RemoveImage_FullMethodName, in.message(), out, opts...); err != nil {
		return nil, err
	}
	return removeImageReplyFrom(out), nil
}

func (c *similarClient) Shutdown(ctx context.Context, in *ShutdownRequest, opts ...grpc.CallOption) (*ShutdownReply, error) {
	out := dynamicpb.NewMessage(shutdownReplyDesc)
	if err := c.cc.Invoke(ctx, Similar_Shutdown_FullMethodName, in.message(), out, opts...); err != nil {
		return nil, err
	}
	return shutdownReplyFrom(out), nil
}

// SimilarServer — серверная сторона euclidesproto.Similar.
type SimilarServer interface {
	FindSimilarImage(context.Context, *FindSimilarImageRequest) (*FindSimilarImageReply, error)
	FindSimilarImageById(context.Context, *FindSimilarImageByIdRequest) (*FindSimilarImageReply, error)
	AddImage(context.Context, *AddImageRequest) (*AddImageReply, error)
	RemoveImage(context.Context, *RemoveImageRequest) (*RemoveImageReply, error)
	Shutdown(context.Context, *ShutdownRequest) (*ShutdownReply, error)
}

// UnimplementedSimilarServer отвечает codes.Unimplemented на все методы.
type UnimplementedSimilarServer struct{}

func (UnimplementedSimilarServer) FindSimilarImage(context.Context, *FindSimilarImageRequest) (*FindSimilarImageReply, error) {
	return nil, status.Error(codes.Unimplemented, "method FindSimilarImage not implemented")
}

func (UnimplementedSimilarServer) FindSimilarImageById(context.Context, *FindSimilarImageByIdRequest) (*FindSimilarImageReply, error) {
	return nil, status.Error(codes.Unimplemented, "method FindSimilarImageById not implemented")
}

func (UnimplementedSimilarServer) AddImage(context.Context, *AddImageRequest) (*AddImageReply, error) {
	return nil, status.Error(codes.Unimplemented, "method AddImage not implemented")
}

func (UnimplementedSimilarServer) RemoveImage(context.Context, *RemoveImageRequest) (*RemoveImageReply, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveImage not implemented")
}

func (UnimplementedSimilarServer) Shutdown(context.Context, *ShutdownRequest) (*ShutdownReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Shutdown not implemented")
}

func RegisterSimilarServer(s grpc.ServiceRegistrar, srv SimilarServer) {
	s.RegisterService(&Similar_ServiceDesc, srv)
}

type unaryHandlerFunc = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

// unaryHandler декодирует запрос в dynamicpb, вызывает метод сервера и кодирует ответ обратно.
func unaryHandler[Req, Rep any](
	fullMethod string,
	in func() protoreflect.MessageDescriptor,
	decode func(protoreflect.Message) Req,
	encode func(Rep) *dynamicpb.Message,
	call func(SimilarServer, context.Context, Req) (Rep, error),
) unaryHandlerFunc {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		msg := dynamicpb.NewMessage(in())
		if err := dec(msg); err != nil {
			return nil, err
		}
		req := decode(msg)

		handler := func(ctx context.Context, req any) (any, error) {
			rep, err := call(srv.(SimilarServer), ctx, req.(Req))
			if err != nil {
				return nil, err
			}
			return encode(rep), nil
		}

		if interceptor == nil {
			return handler(ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, req, info, handler)
	}
}

var Similar_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SimilarServiceName,
	HandlerType: (*SimilarServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FindSimilarImage",
			Handler: unaryHandler(Similar_FindSimilarImage_FullMethodName,
				func() protoreflect.MessageDescriptor { return findSimilarImageRequestDesc },
				findSimilarImageRequestFrom,
				(*FindSimilarImageReply).message,
				SimilarServer.FindSimilarImage,
			),
		},
		{
			MethodName: "FindSimilarImageById",
			Handler: unaryHandler(Similar_FindSimilarImageById_FullMethodName,
				func() protoreflect.MessageDescriptor { return findSimilarImageByIdRequestDesc },
				findSimilarImageByIdRequestFrom,
				(*FindSimilarImageReply).message,
				SimilarServer.FindSimilarImageById,
			),
		},
		{
			MethodName: "AddImage",
			Handler: unaryHandler(Similar_AddImage_FullMethodName,
				func() protoreflect.MessageDescriptor { return addImageRequestDesc },
				addImageRequestFrom,
				(*AddImageReply).message,
				SimilarServer.AddImage,
			),
		},
		{
			MethodName: "RemoveImage",
			Handler: unaryHandler(Similar_RemoveImage_FullMethodName,
				func() protoreflect.MessageDescriptor { return removeImageRequestDesc },
				removeImageRequestFrom,
				(*RemoveImageReply).message,
				SimilarServer.RemoveImage,
			),
		},
		{
			MethodName: "Shutdown",
			Handler: unaryHandler(Similar_Shutdown_FullMethodName,
				func() protoreflect.MessageDescriptor { return shutdownRequestDesc },
				shutdownRequestFrom,
				(*ShutdownReply).message,
				SimilarServer.Shutdown,
			),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: fileName,
}
