package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
)

// FileEntry is one item in the backend's download tree. Directories carry
// item_count; files carry size in bytes.
type FileEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"`
	Size      int64  `json:"size,omitempty"`
	ItemCount int    `json:"item_count,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e FileEntry) IsDir() bool {
	return e.Type == "directory"
}

// ListFiles lists one directory of the download tree. dir is relative to the
// download root; empty lists the root. The backend returns directories
// first, each group sorted case-insensitively.
func (c *Client) ListFiles(ctx context.Context, dir string) ([]FileEntry, error) {
	endpoint := "/api/files"
	if dir != "" {
		endpoint += "?path=" + url.QueryEscape(dir)
	}

	var entries []FileEntry
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("file list fetch failed: %w", err)
	}
	return entries, nil
}

// DownloadItem streams one or more items from the download tree into w. A
// single file arrives as-is; multiple selections and directories arrive as a
// zip archive. Returns the backend's suggested filename. Uses an uncapped
// streaming client: downloads are whole media files and outlive the default
// request timeout.
func (c *Client) DownloadItem(ctx context.Context, paths []string, w io.Writer) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no paths to download")
	}

	query := url.Values{}
	for _, p := range paths {
		query.Add("paths", p)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/download_item?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	streaming := &http.Client{
		Jar:       c.HTTPClient.Jar,
		Transport: c.HTTPClient.Transport,
	}
	resp, err := streaming.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", DecodeResponse(resp, nil)
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = path.Base(paths[0])
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("download of %s interrupted: %w", name, err)
	}
	return name, nil
}

// DeleteItems removes items from the download tree. Partial failures come
// back from the backend as an error carrying its summary message.
func (c *Client) DeleteItems(ctx context.Context, paths []string) (string, error) {
	payload := struct {
		Paths []string `json:"paths"`
	}{Paths: paths}

	var msg Message
	if err := c.mutate(ctx, "files-delete", http.MethodPost, "/api/delete_item", payload, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// attachmentName extracts the filename from a Content-Disposition header.
func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
