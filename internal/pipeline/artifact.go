package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/model"
)

// ArtifactKey is where an order's summary lands in the object store.
func ArtifactKey(orderID string) string {
	return fmt.Sprintf("artifacts/%s.json", orderID)
}

// AssembleArtifact validates the intake record, writes the summary as the
// order's durable artifact, and stamps the storage URL onto the summary.
// Reprocessing an order overwrites its artifact in place.
//
// Validation collects every absent required field, not just the first, so one
// failed run reports the whole problem.
func (p *Pipeline) AssembleArtifact(ctx context.Context, rec model.Record, sum *model.Summary) error {
	var missing []string
	for _, field := range model.RequiredOrderFields {
		if !rec[field].Present() {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	body, err := json.Marshal(sum)
	if err != nil {
		return eris.Wrap(err, "artifact: marshal summary")
	}

	key := ArtifactKey(sum.OrderID)
	bucket := p.cfg.Artifacts.Bucket
	if err := p.objects.Put(ctx, bucket, key, body); err != nil {
		return eris.Wrapf(err, "artifact: put %s/%s", bucket, key)
	}

	sum.ArtifactURL = p.artifactURL(key)
	zap.L().Info("artifact written",
		zap.String("order_id", sum.OrderID),
		zap.String("url", sum.ArtifactURL))
	return nil
}

func (p *Pipeline) artifactURL(key string) string {
	if p.cfg.Artifacts.Backend == "s3" {
		return fmt.Sprintf("s3://%s/%s", p.cfg.Artifacts.Bucket, key)
	}
	return fmt.Sprintf("file://%s/%s/%s", p.cfg.Artifacts.Dir, p.cfg.Artifacts.Bucket, key)
}
