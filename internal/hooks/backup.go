package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/groompro/backend/internal/domain"
)

// Backup writes point-in-time JSON snapshots of mutated appointments to an
// S3-compatible bucket (AWS S3 or MinIO). Objects are keyed by date and
// label, so the bucket doubles as a crude audit trail.
type Backup struct {
	client *s3.Client
	bucket string
}

// BackupOptions configures a Backup. Endpoint and PathStyle support MinIO;
// credentials come from the default AWS chain.
type BackupOptions struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

func NewBackup(ctx context.Context, opts BackupOptions) (*Backup, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("hooks.NewBackup: bucket required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("hooks.NewBackup: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.PathStyle {
			o.UsePathStyle = true
		}
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &Backup{client: client, bucket: opts.Bucket}, nil
}

type backupSnapshot struct {
	Label        string               `json:"label"`
	TakenAt      time.Time            `json:"taken_at"`
	Appointments []domain.Appointment `json:"appointments"`
}

// Snapshot stores the appointments under
// backups/<yyyy>/<mm>/<dd>/<label>-<unixnano>.json.
func (b *Backup) Snapshot(ctx context.Context, label string, appts []domain.Appointment) error {
	now := time.Now().UTC()
	body, err := json.Marshal(backupSnapshot{
		Label:        label,
		TakenAt:      now,
		Appointments: appts,
	})
	if err != nil {
		return fmt.Errorf("hooks.Backup.Snapshot: marshal: %w", err)
	}

	key := fmt.Sprintf("backups/%s/%s-%d.json", now.Format("2006/01/02"), label, now.UnixNano())
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("hooks.Backup.Snapshot: put %s: %w", key, err)
	}
	return nil
}
