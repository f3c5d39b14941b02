package supervisor

// Stage is the position of the pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageHardwareChosen
	StageCatalogLoading
	StageCatalogReady
	StageCatalogFailed
	StageReleaseChosen
	StageVariantChosen
	StageDownloadInFlight
	StageDownloadComplete
	StageDownloadFailed
	StageFlashInFlight
	StageFlashComplete
)

var stageNames = [...]string{
	StageIdle:             "idle",
	StageHardwareChosen:   "hardware chosen",
	StageCatalogLoading:   "catalog loading",
	StageCatalogReady:     "catalog ready",
	StageCatalogFailed:    "catalog failed",
	StageReleaseChosen:    "release chosen",
	StageVariantChosen:    "variant chosen",
	StageDownloadInFlight: "download in flight",
	StageDownloadComplete: "download complete",
	StageDownloadFailed:   "download failed",
	StageFlashInFlight:    "flash in flight",
	StageFlashComplete:    "flash complete",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// InFlight reports whether a background operation belongs to the stage.
func (s Stage) InFlight() bool {
	return s == StageCatalogLoading || s == StageDownloadInFlight || s == StageFlashInFlight
}

// hasCatalog reports whether the release list is available in the stage.
func (s Stage) hasCatalog() bool {
	return s >= StageCatalogReady && s != StageCatalogFailed
}
