package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/gate"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/token"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testSecret = []byte("grpc-interceptor-test-secret-0123456789")

func newTestGate(t *testing.T) (*gate.Gate, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec(token.Config{Secret: testSecret, TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return gate.New(codec, gate.NewPolicy(HealthServicePrefix)), codec
}

func issue(t *testing.T, c *token.Codec, id models.Identity, at time.Time) string {
	t.Helper()
	tok, err := c.Issue(id, at)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	return tok
}

func withAuth(ctx context.Context, value string) context.Context {
	return metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", value))
}

func TestUnary_PublicMethodWithoutToken(t *testing.T) {
	g, _ := newTestGate(t)
	icpt := UnaryServerInterceptor(g, logging.NewNopLogger())

	called := false
	h := func(ctx context.Context, req any) (any, error) {
		called = true
		if _, ok := gate.IdentityFromContext(ctx); ok {
			t.Fatal("public call must not carry an identity")
		}
		return "ok", nil
	}

	resp, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || resp != "ok" {
		t.Fatalf("handler not called or bad resp: %v", resp)
	}
}

func TestUnary_MissingToken(t *testing.T) {
	g, _ := newTestGate(t)
	icpt := UnaryServerInterceptor(g, logging.NewNopLogger())

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
}

func TestUnary_InvalidTokensShareOneMessage(t *testing.T) {
	g, codec := newTestGate(t)
	icpt := UnaryServerInterceptor(g, logging.NewNopLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}

	expired := issue(t, codec, models.Identity{Email: "a@b.com", Role: models.RoleUser}, time.Now().Add(-2*time.Hour))
	headers := []string{"Bearer garbage", "Bearer " + expired, "Bearer a.b.c"}

	var msgs []string
	for _, hdr := range headers {
		_, err := icpt(withAuth(context.Background(), hdr), nil, info, h)
		st, _ := status.FromError(err)
		if st.Code() != codes.Unauthenticated {
			t.Fatalf("%q: want Unauthenticated, got %v", hdr, err)
		}
		msgs = append(msgs, st.Message())
	}
	for _, m := range msgs[1:] {
		if m != msgs[0] {
			t.Fatalf("rejection messages differ: %q vs %q", m, msgs[0])
		}
	}
}

func TestUnary_ValidTokenAttachesIdentity(t *testing.T) {
	g, codec := newTestGate(t)
	icpt := UnaryServerInterceptor(g, logging.NewNopLogger())

	want := models.Identity{Email: "a@b.com", Role: models.RoleAdmin}
	tok := issue(t, codec, want, time.Now())

	var got models.Identity
	h := func(ctx context.Context, req any) (any, error) {
		id, ok := gate.IdentityFromContext(ctx)
		if !ok {
			return nil, errors.New("no identity")
		}
		got = id
		return nil, nil
	}

	if _, err := icpt(withAuth(context.Background(), "Bearer "+tok), nil, &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("identity mismatch: got %+v want %+v", got, want)
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestStream_Interceptor(t *testing.T) {
	g, codec := newTestGate(t)
	icpt := StreamServerInterceptor(g, logging.NewNopLogger())
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Service/Watch"}

	err := icpt(nil, &fakeStream{ctx: context.Background()}, info, func(srv any, ss grpc.ServerStream) error {
		t.Fatal("handler should not be called")
		return nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}

	want := models.Identity{Email: "a@b.com", Role: models.RoleUser}
	ctx := withAuth(context.Background(), "Bearer "+issue(t, codec, want, time.Now()))
	err = icpt(nil, &fakeStream{ctx: ctx}, info, func(srv any, ss grpc.ServerStream) error {
		id, ok := gate.IdentityFromContext(ss.Context())
		if !ok || id != want {
			t.Fatalf("stream identity: got %+v, %v", id, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func metadataOutgoing(ctx context.Context, value string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", value)
}
