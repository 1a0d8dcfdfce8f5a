package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/trajfit/internal/storage"
)

type ExportData struct {
	Run        *storage.RunMetadata `json:"run"`
	Steps      int                  `json:"steps"`
	Trajectory []storage.Sample     `json:"trajectory"`
}

func WriteJSON(w io.Writer, meta *storage.RunMetadata, traj *storage.Trajectory) error {
	data := ExportData{Run: meta}
	if traj != nil {
		data.Steps = len(traj.Samples)
		data.Trajectory = traj.Samples
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
