// Package staticd serves files from a single document root over a
// deliberately small HTTP/1.1 subset.
//
// Every connection carries exactly one request. The request line and
// headers are parsed by hand, the target is mapped onto the document root
// with a traversal guard, and the response always ends with
// "Connection: close". Only GET and HEAD are supported.
//
// Connections are accepted by one loop and handed to a fixed pool of
// workers through a bounded queue, so in-flight work never exceeds
// Workers + Backlog connections. A panic while serving one connection is
// recovered and only that connection is dropped.
//
// Quick start:
//
//	srv, err := staticd.NewServer(staticd.Config{Root: "/srv/www", Port: 8080})
//	if err != nil { log.Fatal(err) }
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := srv.ListenAndServe(ctx); err != staticd.ErrServerClosed { log.Fatal(err) }
package staticd
