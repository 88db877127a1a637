package app

import "context"

// DownloadRequest is created once per invocation and never modified.
type DownloadRequest struct {
	SourceURL  string
	OutputPath string
}

// DownloadResult is either a success (FilePath set, Failure nil) or a failure.
type DownloadResult struct {
	FilePath string
	Failure  *Failure
}

func DownloadSucceeded(filePath string) DownloadResult {
	return DownloadResult{FilePath: filePath}
}

func DownloadFailedWith(f *Failure) DownloadResult {
	return DownloadResult{Failure: f}
}

func (r DownloadResult) OK() bool {
	return r.Failure == nil
}

type DownloadService interface {
	Download(ctx context.Context, req DownloadRequest) DownloadResult
}
