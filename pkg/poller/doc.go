// Package poller watches a long-running certificate request from the client
// side.
//
// Poller calls a check function on a fixed interval until the request
// finishes, the poll budget runs out or the check keeps failing. Repeated
// progress messages are reported once.
//
// Client speaks the certificate HTTP API with a cookie jar, so a login
// carries over to later calls. StatusCheck and DNSReadyCheck adapt it to
// the poller:
//
//	client, _ := poller.NewClient("http://localhost:3000")
//	_ = client.Login(ctx, email, password)
//	p := poller.New(poller.WithInterval(5 * time.Second))
//	res := <-p.Start(ctx, poller.StatusCheck(client), func(u poller.Update) {
//		fmt.Println(u.Message)
//	})
package poller
