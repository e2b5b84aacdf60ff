// Package testaddon copies result bundles into the directory collected by the Bitrise test reports addon.
package testaddon

import "path/filepath"

// Exporter ...
type Exporter interface {
	CopyAndSaveMetadata(info AddonCopy) error
}

type exporter struct {
	testAddon TestAddon
}

// NewExporter ...
func NewExporter(testAddon TestAddon) Exporter {
	return &exporter{
		testAddon: testAddon,
	}
}

// AddonCopy describes one result bundle to hand over to the addon.
type AddonCopy struct {
	SourceTestOutputDir   string
	TargetAddonPath       string
	TargetAddonBundleName string
}

// CopyAndSaveMetadata copies the bundle into <addon dir>/<bundle name> and writes its test-info.json.
func (e exporter) CopyAndSaveMetadata(info AddonCopy) error {
	bundleName := e.testAddon.ReplaceUnsupportedFilenameCharacters(info.TargetAddonBundleName)
	addonPerStepOutputDir := filepath.Join(info.TargetAddonPath, bundleName)

	if err := e.testAddon.CopyDirectory(info.SourceTestOutputDir, addonPerStepOutputDir); err != nil {
		return err
	}
	return e.testAddon.SaveBundleMetadata(addonPerStepOutputDir, bundleName)
}
