package logsvc

import "github.com/sirupsen/logrus"

// componentHook tags every entry with the component that logged it.
type componentHook struct {
	name string
}

func ComponentHook(name string) logrus.Hook {
	return componentHook{name: name}
}

func (h componentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h componentHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["component"]; !ok {
		e.Data["component"] = h.name
	}
	return nil
}
