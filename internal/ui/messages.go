package ui

import "squish/internal/progress"

type depsCheckedMsg struct {
	DownloaderPath string
	FFmpegPath     string
	FFprobePath    string
	Err            error
}

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

type allDoneMsg struct{}
