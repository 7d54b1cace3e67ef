package util

import (
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// SetupInterruptHandler removes half-written chapter directories when
// the process is interrupted mid-download.
func SetupInterruptHandler(outputDir string, log *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Warn("interrupt received, cleaning up partial downloads")

		CleanupPartialChapters(outputDir, log)
		RemoveIfEmpty(outputDir)

		os.Exit(1)
	}()
}

// CleanupPartialChapters deletes every ".part" directory below dir. The
// downloader renames a chapter directory into place only after all its
// pages are written, so anything still carrying the suffix is garbage.
func CleanupPartialChapters(dir string, log *zap.Logger) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".part") {
			return nil
		}

		if err := os.RemoveAll(path); err != nil {
			log.Warn("cleanup failed", zap.String("path", path), zap.Error(err))
		} else {
			log.Info("removed partial chapter", zap.String("path", path))
		}
		return filepath.SkipDir
	})
}

// RemoveIfEmpty deletes dir when nothing is left inside it.
func RemoveIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	if len(entries) == 0 {
		_ = os.Remove(dir)
	}
}
