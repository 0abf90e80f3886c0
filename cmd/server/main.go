package main

import "github.com/GoncaloAzev14/timesense-sub000/internal/app/server"

func main() {
	server.Run()
}
