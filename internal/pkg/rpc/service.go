package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Empty is the request/response of calls without payload.
type Empty struct{}

// Unary declares a unary method whose handler receives the service
// implementation as S and a decoded *Req.
func Unary[S any, Req any, Resp any](service, method string, fn func(srv S, ctx context.Context, req *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a unary method on conn using the JSON codec.
func Invoke[Req any, Resp any](ctx context.Context, conn grpc.ClientConnInterface, service, method string, req *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := conn.Invoke(ctx, "/"+service+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
