//go:build !darwin && !linux

package notify

func platformCommand(Message) (string, []string) { return "", nil }
