package downloader

// YTDLPInfo mirrors fields from yt-dlp --dump-json output that we care about.
type YTDLPInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}
