package authrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/authflow/internal/model"
)

const ServiceName = "authflow.Auth"

// Full method names.
const (
	MethodLogin           = "/" + ServiceName + "/Login"
	MethodVerifyTwoFactor = "/" + ServiceName + "/VerifyTwoFactor"
	MethodRequestNewCode  = "/" + ServiceName + "/RequestNewCode"
	MethodWhoAmI          = "/" + ServiceName + "/WhoAmI"
	MethodLogout          = "/" + ServiceName + "/Logout"
)

// AuthorizationHeader carries the bearer auth token.
const AuthorizationHeader = "authorization"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	TempToken string `json:"tempToken"`
	Code      string `json:"code"`
}

type ResendRequest struct {
	TempToken string `json:"tempToken"`
}

type Empty struct{}

// AuthServer is the server API for the authflow.Auth service.
type AuthServer interface {
	Login(ctx context.Context, req *LoginRequest) (*model.AuthResult, error)
	VerifyTwoFactor(ctx context.Context, req *VerifyRequest) (*model.AuthResult, error)
	RequestNewCode(ctx context.Context, req *ResendRequest) (*model.CodeResent, error)
	// WhoAmI and Logout require an authorization header.
	WhoAmI(ctx context.Context, req *Empty) (*model.User, error)
	Logout(ctx context.Context, req *Empty) (*Empty, error)
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes authflow.Auth for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unary(MethodLogin, AuthServer.Login)},
		{MethodName: "VerifyTwoFactor", Handler: unary(MethodVerifyTwoFactor, AuthServer.VerifyTwoFactor)},
		{MethodName: "RequestNewCode", Handler: unary(MethodRequestNewCode, AuthServer.RequestNewCode)},
		{MethodName: "WhoAmI", Handler: unary(MethodWhoAmI, AuthServer.WhoAmI)},
		{MethodName: "Logout", Handler: unary(MethodLogout, AuthServer.Logout)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authflow/auth",
}

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unary[Req, Resp any](fullMethod string, call func(AuthServer, context.Context, *Req) (*Resp, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthClient is the client API for the authflow.Auth service.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*model.AuthResult, error) {
	out := new(model.AuthResult)
	if err := c.invoke(ctx, MethodLogin, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) VerifyTwoFactor(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*model.AuthResult, error) {
	out := new(model.AuthResult)
	if err := c.invoke(ctx, MethodVerifyTwoFactor, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) RequestNewCode(ctx context.Context, in *ResendRequest, opts ...grpc.CallOption) (*model.CodeResent, error) {
	out := new(model.CodeResent)
	if err := c.invoke(ctx, MethodRequestNewCode, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) WhoAmI(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*model.User, error) {
	out := new(model.User)
	if err := c.invoke(ctx, MethodWhoAmI, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.invoke(ctx, MethodLogout, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

// WithBearer attaches authToken to outgoing calls made with ctx.
func WithBearer(ctx context.Context, authToken string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, AuthorizationHeader, "Bearer "+authToken)
}
