// Package hotplug watches udev netlink events for USB camera attach and
// detach. The "devices watch" command uses it so an operator can confirm
// which cameras the host sees before starting a run.
package hotplug
