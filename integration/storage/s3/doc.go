// Package s3 mirrors issued certificate artifacts to Amazon S3 or an
// S3-compatible store such as MinIO.
//
//	mirror, err := s3.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	orch, err := letsencrypt.New(store, checker, letsencrypt.WithMirror(mirror))
//
// The local files stay the source of truth. A failed upload is logged by the
// caller and does not fail issuance.
package s3
