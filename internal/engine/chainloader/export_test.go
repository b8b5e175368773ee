// export_test.go exports private functions for white-box testing.
package chainloader

var (
	DependencyHandler = dependencyHandler
	ProcessHandler    = processHandler
)
