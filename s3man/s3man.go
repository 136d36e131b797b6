package s3man

import (
	"io"
	"strings"

	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type Manager struct {
	session    *session.Session
	bucketName string
	namespace  string
}

// New creates a new instance of Manager using AWS environment variables.
func New() (*Manager, error) {
	keyID := env.GetVar("AWS_ACCESS_KEY_ID")
	secret := env.GetVar("AWS_SECRET_ACCESS_KEY")
	region := env.GetVar("AWS_REGION")

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(keyID, secret, ""),
		Region:      &region,
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		session:    sess,
		bucketName: env.GetVar("AWS_S3_BUCKETNAME"),
		namespace:  Namespace(env.GetVar("AWS_S3_NAMESPACE")),
	}, nil
}

// Namespace normalizes the key prefix to "/prefix" so report paths,
// which start with a slash, can be appended directly.
func Namespace(ns string) string {
	ns = strings.Trim(ns, "/")
	if ns == "" {
		return ""
	}
	return "/" + ns
}

// Key returns the object key path is stored under.
func (m *Manager) Key(path string) string {
	return strings.TrimPrefix(m.namespace+path, "/")
}

// Exists returns true if the object exists in the S3 bucket
func (m *Manager) Exists(path string) (bool, error) {
	cli := s3.New(m.session)
	_, err := cli.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(m.bucketName),
		Key:    aws.String(m.Key(path)),
	})

	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "Not Found") {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Upload an object to S3
func (m *Manager) Upload(file io.ReadSeeker, path string) error {
	uploader := s3manager.NewUploader(m.session)

	_, err := uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(m.bucketName),
		Key:    aws.String(m.Key(path)),
		Body:   file,
	})

	return err
}

// DownloadInMemory downloads an S3 object into memory
func (m *Manager) DownloadInMemory(path string) ([]byte, error) {
	downloader := s3manager.NewDownloader(m.session)

	w := &aws.WriteAtBuffer{}
	_, err := downloader.Download(w, &s3.GetObjectInput{
		Bucket: aws.String(m.bucketName),
		Key:    aws.String(m.Key(path)),
	})

	return w.Bytes(), err
}
