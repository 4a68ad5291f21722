package main

import "github.com/fatih/color"

// 腳本共用的輸出顏色
var (
	good = color.New(color.FgGreen)
	bad  = color.New(color.FgRed)
	warn = color.New(color.FgYellow)
	info = color.New(color.FgCyan, color.Bold)
)
