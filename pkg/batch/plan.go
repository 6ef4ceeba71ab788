package batch

import (
	"github.com/gk-tools/imconvt/internal/utils"
	"github.com/gk-tools/imconvt/pkg/types"
)

// DefaultPrefix is prepended to output file names
const DefaultPrefix = "gk_"

// Plan builds one job per file, writing <prefix><stem>.<ext> into outDir.
// params is copied once so every job of the batch carries the same values
// regardless of later edits by the caller.
func Plan(files []string, outDir, prefix string, params types.Params) []types.JobDescriptor {
	snapshot := params.Clone()

	prefix = utils.SanitizeFilename(prefix)
	ext := snapshot.Output.Format.Extension()

	jobs := make([]types.JobDescriptor, 0, len(files))
	for _, f := range files {
		dest := utils.GenerateOutputFilename(f, outDir, prefix, ext)
		jobs = append(jobs, types.NewJobDescriptor(f, dest, snapshot))
	}
	return jobs
}
