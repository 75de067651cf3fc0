// Package upload pushes packaged audio to the CDN via rclone and article
// metadata documents to S3-compatible object storage.
package upload
