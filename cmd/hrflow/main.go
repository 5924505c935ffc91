// Command hrflow runs HR workflow graphs from the command line: start
// and resume runs, inspect their state, and manage the personnel store
// behind them.
package main

func main() {
	Execute()
}
