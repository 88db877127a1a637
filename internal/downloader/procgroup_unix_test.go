//go:build unix

package downloader

import (
	"context"
	"testing"
	"time"

	"github.com/miikaoskari/dc-bot/internal/app"
)

func TestService_Download_killsChildrenOnTimeout(t *testing.T) {
	req, _ := newTestRequest(t)
	start := time.Now()
	res := newTestService("hang_with_child", Config{Timeout: 300 * time.Millisecond}).Download(context.Background(), req)
	elapsed := time.Since(start)
	if res.OK() {
		t.Fatal("Download() succeeded, want timeout failure")
	}
	if res.Failure.Kind != app.DownloadFailed {
		t.Errorf("Failure.Kind = %v, want %v", res.Failure.Kind, app.DownloadFailed)
	}
	if elapsed >= waitDelay {
		t.Errorf("Download() took %v, the child holding stdout was not killed", elapsed)
	}
}
