package handler

import (
	"context"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Method は google.protobuf.Struct を受け取り返す単項 RPC の実装です。
type Method func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Service は手組みの ServiceDesc で公開される gRPC サービスです。
type Service interface {
	// ServiceName は完全修飾サービス名を返します。
	ServiceName() string
	// Methods はメソッド名と実装の対応を返します。
	Methods() map[string]Method
}

// Register は svc を ServiceDesc として登録します。
func Register(registrar grpc.ServiceRegistrar, svc Service) {
	desc := Desc(svc)
	registrar.RegisterService(&desc, svc)
}

// Desc は svc の grpc.ServiceDesc を構築します。メソッドは名前順に並びます。
func Desc(svc Service) grpc.ServiceDesc {
	methods := svc.Methods()
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)

	desc := grpc.ServiceDesc{
		ServiceName: svc.ServiceName(),
		HandlerType: (*Service)(nil),
		Methods:     make([]grpc.MethodDesc, 0, len(names)),
		Streams:     []grpc.StreamDesc{},
		Metadata:    svc.ServiceName(),
	}
	for _, name := range names {
		desc.Methods = append(desc.Methods, methodDesc(svc.ServiceName(), name))
	}
	return desc
}

// FullMethod は "/service/method" 形式の名前を返します。
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

func methodDesc(service, name string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			call := srv.(Service).Methods()[name]
			if interceptor == nil {
				return call(ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(ctx, req.(*structpb.Struct))
			})
		},
	}
}
