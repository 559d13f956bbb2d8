package tcp

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestModule_Lifecycle 测试模块停止时关闭传输
func TestModule_Lifecycle(t *testing.T) {
	var transport *Transport

	app := fxtest.New(t,
		Module(),
		fx.Populate(&transport),
	)
	app.RequireStart()

	if transport == nil {
		t.Fatal("Transport not populated")
	}
	if transport.IsClosed() {
		t.Error("Transport closed before stop")
	}

	app.RequireStop()

	if !transport.IsClosed() {
		t.Error("Transport should be closed after stop")
	}
}
