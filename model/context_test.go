package model

import (
	"context"
	"testing"
)

func TestRequestContext_Validate(t *testing.T) {
	rc := &RequestContext{ActorID: "admin-1"}
	if err := rc.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	rc = &RequestContext{}
	if err := rc.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing ActorID")
	}
}

func TestRequestContext_HasRole(t *testing.T) {
	rc := &RequestContext{ActorID: "admin-1", Roles: []string{"admin", "support"}}

	if !rc.HasRole("admin") {
		t.Error("HasRole(admin) = false, want true")
	}
	if rc.HasRole("viewer") {
		t.Error("HasRole(viewer) = true, want false")
	}

	empty := &RequestContext{ActorID: "u1"}
	if empty.HasRole("admin") {
		t.Error("HasRole on empty roles = true, want false")
	}
}

func TestRequestContext_Claim(t *testing.T) {
	rc := &RequestContext{
		ActorID: "admin-1",
		Claims:  map[string]any{"email": "admin@tantika.in"},
	}
	if got := rc.Claim("email"); got != "admin@tantika.in" {
		t.Errorf("Claim(email) = %v", got)
	}
	if got := rc.Claim("missing"); got != nil {
		t.Errorf("Claim(missing) = %v, want nil", got)
	}

	var noClaims RequestContext
	if got := noClaims.Claim("email"); got != nil {
		t.Errorf("Claim with nil map = %v, want nil", got)
	}
}

func TestRequestContext_roundTrip(t *testing.T) {
	rc := &RequestContext{ActorID: "admin-1", CorrelationID: "corr-1"}
	ctx := WithRequestContext(context.Background(), rc)

	got := RequestContextFrom(ctx)
	if got != rc {
		t.Errorf("RequestContextFrom = %p, want %p", got, rc)
	}

	if got := RequestContextFrom(context.Background()); got != nil {
		t.Errorf("RequestContextFrom(empty) = %v, want nil", got)
	}
}

func TestMustRequestContext_panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRequestContext did not panic on empty context")
		}
	}()
	MustRequestContext(context.Background())
}
