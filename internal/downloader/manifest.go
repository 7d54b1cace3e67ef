package downloader

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// TitleInfo is the _info.json manifest written next to a title's
// chapter directories. Field names are shared with other tooling that
// reads these dumps, so they stay camelCase.
type TitleInfo struct {
	Title    string        `json:"titleName"`
	Author   string        `json:"authorName"`
	Chapters []ChapterInfo `json:"chapters"`
}

type ChapterInfo struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"mainName"`
	Timestamp *int64  `json:"timestamp"`
	Subtitle  *string `json:"subName"`
}

// WriteTitleInfo replaces the manifest for a title.
func (d *Downloader) WriteTitleInfo(titleID int64, info TitleInfo) error {
	dir := d.TitleDir(titleID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "_info.json"), data, 0644)
}

// ReadTitleInfo loads a previously written manifest, if any.
func (d *Downloader) ReadTitleInfo(titleID int64) (*TitleInfo, error) {
	data, err := os.ReadFile(filepath.Join(d.TitleDir(titleID), "_info.json"))
	if err != nil {
		return nil, err
	}

	var info TitleInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
