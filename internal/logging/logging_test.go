package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantErr bool
	}{
		{name: "should_build_production", mode: ModeProduction},
		{name: "should_build_debug", mode: ModeDebug},
		{name: "should_treat_empty_as_debug", mode: ""},
		{name: "should_return_err_on_unknown_mode", mode: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Build(tt.mode, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("Build() returned nil logger")
			}
		})
	}
}

func TestNewContextS_carriesFieldsAcrossCopy(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = NewContextS(ctx, "request_id", "r-1")

	detached := CopyContext(ctx, context.Background())
	FromContextS(detached).Info("hello")

	entries := logs.FilterField(zap.String("request_id", "r-1")).All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries with request_id, want 1", len(entries))
	}
}

func TestFromContext_fallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	FromContextS(context.Background()).Warn("global")
	if logs.Len() != 1 {
		t.Fatalf("got %d entries, want 1", logs.Len())
	}
}
