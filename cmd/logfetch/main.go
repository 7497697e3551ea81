// Command logfetch pulls stored log files off a running bridge over its
// TCP file server. With no -file it prints the listing; with -file it
// saves the body to disk.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

func main() {
	addr := flag.String("addr", "192.168.1.99:80", "file server address")
	file := flag.String("file", "", "log file to download (empty prints the listing)")
	out := flag.String("o", "", "output path (defaults to the file name)")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and I/O timeout")
	flag.Parse()

	if err := run(*addr, *file, *out, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "logfetch:", err)
		os.Exit(1)
	}
}

func run(addr, file, out string, timeout time.Duration) error {
	status, body, err := fetch(addr, file, timeout)
	if err != nil {
		return err
	}
	if status != 200 {
		return fmt.Errorf("server returned %d: %s", status, strings.TrimSpace(string(body)))
	}

	if file == "" {
		// Strip the markup down to the file names.
		for _, line := range strings.Split(string(body), "\n") {
			if i := strings.Index(line, "file="); i >= 0 {
				name := line[i+len("file="):]
				if j := strings.IndexByte(name, '"'); j >= 0 {
					name = name[:j]
				}
				fmt.Println(name)
			}
		}
		return nil
	}

	if out == "" {
		out = file
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: %d bytes\n", out, len(body))
	return nil
}

// fetch issues one request and reads the full response. The server closes
// the connection after each response, so the body ends at EOF or at
// Content-Length, whichever comes first.
func fetch(addr, file string, timeout time.Duration) (int, []byte, error) {
	path := "/"
	if file != "" {
		path = "/download?file=" + file
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return 0, nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	_, err = fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, addr)
	if err != nil {
		return 0, nil, err
	}

	r := bufio.NewReader(conn)
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return 0, nil, err
	}
	var proto string
	var status int
	if _, err := fmt.Sscanf(statusLine, "%s %d", &proto, &status); err != nil {
		return 0, nil, errors.New("malformed status line: " + strings.TrimSpace(statusLine))
	}

	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			fmt.Sscanf(v, "%d", &length)
		}
	}

	var body []byte
	if length >= 0 {
		body = make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, nil, err
		}
	} else {
		body, err = io.ReadAll(r)
		if err != nil {
			return 0, nil, err
		}
	}
	return status, body, nil
}
