package config

import (
    "errors"
    "strings"

    "github.com/spf13/viper"
)

// EventSettings describes the wedding itself.  It feeds invitation
// messages and the public invitation page.
type EventSettings struct {
    BrideName string            `mapstructure:"bride_name"`
    GroomName string            `mapstructure:"groom_name"`
    Date      string            `mapstructure:"date"`
    Venue     string            `mapstructure:"venue"`
    Templates map[string]string `mapstructure:"templates"` // message template overrides keyed by type
}

// Couple joins the names for greetings ("Lara & Lemos").
func (e EventSettings) Couple() string {
    switch {
    case e.BrideName != "" && e.GroomName != "":
        return e.BrideName + " & " + e.GroomName
    case e.BrideName != "":
        return e.BrideName
    default:
        return e.GroomName
    }
}

// LoadEventSettings reads event.yaml (or the file at path when non-empty).
// A missing file is not an error: defaults and EVENT_* environment
// variables are used instead.
func LoadEventSettings(path string) (EventSettings, error) {
    v := viper.New()
    if path != "" {
        v.SetConfigFile(path)
    } else {
        v.SetConfigName("event")
        v.SetConfigType("yaml")
        v.AddConfigPath("./config")
        v.AddConfigPath(".")
    }
    v.SetEnvPrefix("EVENT")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()

    v.SetDefault("bride_name", "")
    v.SetDefault("groom_name", "")
    v.SetDefault("date", "")
    v.SetDefault("venue", "")

    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if !errors.As(err, &notFound) {
            return EventSettings{}, err
        }
    }
    var ev EventSettings
    if err := v.Unmarshal(&ev); err != nil {
        return EventSettings{}, err
    }
    return ev, nil
}
