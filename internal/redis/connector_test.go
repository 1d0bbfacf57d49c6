package redis

import (
	"context"
	"testing"
	"time"

	"github.com/jboss-openshift/openshift-kieserver/internal/config"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

func TestBackoff(t *testing.T) {
	b := &backoff{wait: time.Second, max: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("next() #%d = %v, want %v", i, got, w)
		}
	}
}

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 150 * time.Millisecond,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		DialTimeout:    50 * time.Millisecond,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"missing addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}

	if err := validOptions().validate(); err != nil {
		t.Fatalf("validate() on valid options = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(&o)
			if err := o.validate(); err == nil {
				t.Error("validate() = nil, want error")
			}
		})
	}
}

func TestNewUnreachable(t *testing.T) {
	start := time.Now()
	client, err := New(context.Background(), validOptions(), logger.NewNop())
	if err == nil {
		_ = client.Close()
		t.Fatal("New() against a closed port should fail")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("New() took %v, connect timeout not honoured", elapsed)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		RedisAddr:   "redis:6379",
		RedisRT:     3 * time.Second,
		StreamIn:    "in",
		StreamOut:   "out",
		StreamBlock: 5 * time.Second,
	}
	o := OptionsFromConfig(cfg)
	if o.Addr != "redis:6379" {
		t.Errorf("Addr = %q", o.Addr)
	}
	if o.ReadTimeout <= cfg.StreamBlock {
		t.Errorf("ReadTimeout = %v, want above the stream block time %v", o.ReadTimeout, cfg.StreamBlock)
	}

	cfg.StreamIn = ""
	if o := OptionsFromConfig(cfg); o.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout without relay = %v, want 3s", o.ReadTimeout)
	}
}
