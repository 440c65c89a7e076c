// Command parley-client is a minimal terminal client for the Parley chat
// server: it prints everything the server sends and forwards each line
// typed on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "chat server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer conn.Close()

	fmt.Printf("Connected to chat server at %s\n", *addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := io.Copy(os.Stdout, conn); err != nil && err != io.EOF {
			log.Printf("Connection error: %v", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			log.Printf("Failed to send message: %v", err)
			break
		}
		if line == "/quit" {
			break
		}
	}

	conn.Close()
	<-done
	fmt.Println("Disconnected from server")
}
