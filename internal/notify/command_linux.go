//go:build linux

package notify

func platformCommand(msg Message) (string, []string) {
	args := []string{"--app-name=ramadan"}
	if msg.Sound {
		// the daemon decides whether normal urgency plays a sound
		args = append(args, "--urgency=normal")
	} else {
		args = append(args, "--urgency=low")
	}
	return "notify-send", append(args, "--", msg.Title, msg.Body)
}
