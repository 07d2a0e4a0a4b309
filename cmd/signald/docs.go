package main

//go:generate swag init -g cmd/signald/main.go -o docs

// @title           AviatorPro Signal API
// @version         0.1.0
// @description     Hourly signal generation, outcome ingest and feature switches for two Aviator platforms.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
