// Package client drives single HTTP exchanges through readiness callbacks.
//
// A Client owns a pooled transport. Each call to Client.Request creates a
// Collector, a per-exchange state machine that is told when the request
// body can be written, when response headers have arrived, when response
// bytes can be read and when the connection failed. The collector answers
// every callback with the Next interest and delivers exactly one
// entities.HTTPResponse on the channel returned by Request.
//
//	c, err := client.New()
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	req := entities.MustHTTPRequest("POST", "https://eu.httpbin.org/post", []byte("foo"))
//	resp, err := client.Await(c.Request(req))
package client
