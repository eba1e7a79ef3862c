package httpserver

import (
	"net/http"
	"testing"
	"time"
)

func TestNewAppliesDefaults(t *testing.T) {
	srv := New(":8080", http.NewServeMux(), Timeouts{})

	if srv.ReadHeaderTimeout != defaultReadHeaderTimeout {
		t.Fatalf("expected default read header timeout, got %s", srv.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != defaultReadTimeout {
		t.Fatalf("expected default read timeout, got %s", srv.ReadTimeout)
	}
	if srv.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("expected default write timeout, got %s", srv.WriteTimeout)
	}
	if srv.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("expected default idle timeout, got %s", srv.IdleTimeout)
	}
}

func TestNewHonorsConfiguredTimeouts(t *testing.T) {
	srv := New(":8080", http.NewServeMux(), Timeouts{
		ReadHeader: 2 * time.Second,
		Read:       10 * time.Second,
		Write:      15 * time.Second,
		Idle:       time.Minute,
	})

	if srv.ReadHeaderTimeout != 2*time.Second {
		t.Fatalf("expected configured read header timeout, got %s", srv.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != 10*time.Second {
		t.Fatalf("expected configured read timeout, got %s", srv.ReadTimeout)
	}
	if srv.WriteTimeout != 15*time.Second {
		t.Fatalf("expected configured write timeout, got %s", srv.WriteTimeout)
	}
	if srv.IdleTimeout != time.Minute {
		t.Fatalf("expected configured idle timeout, got %s", srv.IdleTimeout)
	}
}
