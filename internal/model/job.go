// Package model defines the entities mirrored from the ContentReaper backend:
// the active download, the queue, the history log, and saved Scythes.
package model

import "strconv"

// DownloadMode selects which yt-dlp profile a job runs with.
type DownloadMode string

const (
	ModeMusic  DownloadMode = "music"
	ModeVideo  DownloadMode = "video"
	ModeClip   DownloadMode = "clip"
	ModeCustom DownloadMode = "custom"
)

// JobTemplate describes how a download should be performed. It is the
// user-specified part of a job and is what Scythes store for re-use.
type JobTemplate struct {
	URL            string       `json:"url"`
	Mode           DownloadMode `json:"mode"`
	Folder         string       `json:"folder,omitempty"`
	ResolvedFolder string       `json:"resolved_folder,omitempty"`
	Format         string       `json:"format,omitempty"`
	Quality        string       `json:"quality,omitempty"`
	Codec          string       `json:"codec,omitempty"`
	Archive        bool         `json:"archive"`
	Proxy          string       `json:"proxy,omitempty"`
	RateLimit      string       `json:"rate_limit,omitempty"`
	EmbedSubs      bool         `json:"embed_subs,omitempty"`
	EmbedLyrics    bool         `json:"embed_lyrics,omitempty"`
	SplitChapters  bool         `json:"split_chapters,omitempty"`
	PlaylistStart  *int         `json:"playlist_start,omitempty"`
	PlaylistEnd    *int         `json:"playlist_end,omitempty"`
	CustomArgs     string       `json:"custom_args,omitempty"`
}

// Job is a queued or active download as reported by the backend.
// ID is server-assigned and stable for the job's lifetime; it is the
// identity key used for queue reconciliation.
type Job struct {
	ID       int64       `json:"id"`
	Template JobTemplate `json:"job_data"`
	URL      string      `json:"url"`
	Title    string      `json:"title,omitempty"`

	// Progress fields are only meaningful while the job is current.
	Progress      float64 `json:"progress"`
	StatusText    string  `json:"status,omitempty"`
	Speed         string  `json:"speed,omitempty"`
	ETA           string  `json:"eta,omitempty"`
	FileSize      string  `json:"file_size,omitempty"`
	Thumbnail     string  `json:"thumbnail,omitempty"`
	PlaylistTitle string  `json:"playlist_title,omitempty"`
	TrackTitle    string  `json:"track_title,omitempty"`
	PlaylistIndex int     `json:"playlist_index,omitempty"`
	PlaylistCount int     `json:"playlist_count,omitempty"`
}

// Key returns the stable identity of a job. The active download reported by
// older backends carries no ID, so the URL is the fallback identity.
func (j Job) Key() string {
	if j.ID != 0 {
		return jobKeyFromID(j.ID)
	}
	if j.URL != "" {
		return j.URL
	}
	return j.Template.URL
}

func jobKeyFromID(id int64) string {
	// Prefix keeps numeric ids from colliding with URL fallbacks.
	return "job:" + strconv.FormatInt(id, 10)
}

// SameScalars reports whether the mutable progress fields of two jobs match.
// Used by the reconciler to decide whether an in-place update is needed.
func (j Job) SameScalars(other Job) bool {
	return j.Progress == other.Progress &&
		j.StatusText == other.StatusText &&
		j.Speed == other.Speed &&
		j.ETA == other.ETA &&
		j.FileSize == other.FileSize &&
		j.Title == other.Title &&
		j.Thumbnail == other.Thumbnail &&
		j.PlaylistTitle == other.PlaylistTitle &&
		j.TrackTitle == other.TrackTitle &&
		j.PlaylistIndex == other.PlaylistIndex &&
		j.PlaylistCount == other.PlaylistCount
}
