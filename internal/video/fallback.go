package video

import (
	"github.com/On-Jun9/ShutterMeta/internal/log"
)

// Extractor turns a container Source into one flat tag map.
type Extractor struct {
	retriever Retriever
	logger    *log.Logger
}

func NewExtractor(retriever Retriever, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Nop()
	}
	return &Extractor{retriever: retriever, logger: logger}
}

// Read asks the source for every key in KeyTable. Missing keys and values
// that fail to format are left out. The source is closed before returning.
func (e *Extractor) Read(path string) (map[string]string, error) {
	src, err := e.retriever.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			e.logger.Warn(path, "failed to release container handle", cerr)
		}
	}()

	out := make(map[string]string)
	for _, f := range KeyTable {
		raw, ok := src.Extract(f.Key)
		if !ok {
			continue
		}
		v, err := f.Apply(raw)
		if err != nil {
			e.logger.Warn(path, "dropped "+f.Name, err)
			continue
		}
		out[f.Name] = v
	}
	return out, nil
}
