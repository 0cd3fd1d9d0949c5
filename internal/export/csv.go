package export

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/model"
)

// CSV writes one line per record with a header row.
func CSV(out io.Writer, recs []model.Business) error {
	w := csv.NewWriter(out)
	enc := csvutil.NewEncoder(w)
	if len(recs) == 0 {
		if err := enc.EncodeHeader(row{}); err != nil {
			return eris.Wrap(err, "export: csv header")
		}
	}
	for _, b := range recs {
		if err := enc.Encode(toRow(b)); err != nil {
			return eris.Wrapf(err, "export: csv encode %s", b.ID)
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: csv flush")
}
