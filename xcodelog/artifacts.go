package xcodelog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScreenshotsDirName is the directory inside an attempt output dir that receives the screenshots.
const ScreenshotsDirName = "screenshots"

var screenshotExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

func (p *rawLogParser) CopyArtifacts(outputDir string) error {
	screenshotsDir := filepath.Join(outputDir, ScreenshotsDirName)

	var copied int
	err := filepath.WalkDir(outputDir, func(pth string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if pth == screenshotsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !screenshotExtensions[strings.ToLower(filepath.Ext(pth))] {
			return nil
		}

		rel, err := filepath.Rel(outputDir, pth)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(pth)
		if err != nil {
			return fmt.Errorf("failed to read screenshot (%s): %w", pth, err)
		}
		if err := p.fileManager.Write(filepath.Join(screenshotsDir, screenshotFileName(rel)), string(content), 0644); err != nil {
			return fmt.Errorf("failed to copy screenshot (%s): %w", pth, err)
		}
		copied++
		return nil
	})
	if err != nil {
		return err
	}

	if copied > 0 {
		p.logger.Printf("%d screenshot(s) copied to %s", copied, screenshotsDir)
	}
	return nil
}

// Replaces characters '/' and ':', which are unsupported in filenames on macOS.
func screenshotFileName(relPath string) string {
	s := strings.ReplaceAll(relPath, string(filepath.Separator), "-")
	return strings.ReplaceAll(s, ":", "-")
}
