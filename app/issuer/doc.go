// Package issuer wires the certificate service: the JSON API, the session
// backed request tracking and the background tasks that drive ACME orders.
//
//	var cfg issuer.Config
//	config.MustLoad(&cfg)
//	app, err := issuer.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	return app.Run(ctx)
//
// Requests answer immediately. Issuance continues on the app's task runner
// and its outcome lands in the caller's session, where GET /status reports
// it once.
package issuer
