package batch

import "github.com/On-Jun9/ShutterMeta/pkg/types"

type ProgressCallback func(update ProgressUpdate)

type ProgressUpdate struct {
	Type     string              `json:"type"`
	Message  string              `json:"message,omitempty"`
	Current  int                 `json:"current,omitempty"`
	Total    int                 `json:"total,omitempty"`
	Filename string              `json:"filename,omitempty"`
	Summary  *types.BatchSummary `json:"summary,omitempty"`
	Error    string              `json:"error,omitempty"`
}
