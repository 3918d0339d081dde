// Package factory builds pluggable modules (metrics sinks, forecast engines)
// from a type name and a map of raw settings, as found under the `type` and
// `conf` keys of the configuration file.
//
// A constructor decodes its settings with Decode:
//
//	engines := factory.NewRegistry[prediction.ForecastEngine]()
//	engines.Register("fixed", func(conf map[string]any) (prediction.ForecastEngine, error) {
//	    var c struct{ Demand map[string]int `json:"demand"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newFixed(c.Demand), nil
//	})
//	eng, err := engines.Create(factory.ModuleConfig{Type: "fixed", Conf: map[string]any{"demand": demand}})
package factory
