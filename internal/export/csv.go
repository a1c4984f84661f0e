package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/lvsim/internal/dynamo"
)

// WriteCSV writes one row per sample: t, prey, predator.
func WriteCSV(w io.Writer, traj *dynamo.Trajectory) error {
	if traj == nil {
		return fmt.Errorf("export: nil trajectory")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "prey", "predator"}); err != nil {
		return err
	}

	row := make([]string, 3)
	for i, x := range traj.States {
		if len(x) != 2 {
			return fmt.Errorf("export: sample %d has %d components", i, len(x))
		}
		row[0] = strconv.FormatFloat(traj.Times[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(x[0], 'g', -1, 64)
		row[2] = strconv.FormatFloat(x[1], 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
