package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindServerFlags registers the dev-server flags on a flag set and binds them
// into viper so .weft.yml and WEFT_ env vars can override them.
func bindServerFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 8000, "port for the dev server")
	fs.String("host", "localhost", "host for the dev server")

	_ = viper.BindPFlag("server.port", fs.Lookup("port"))
	_ = viper.BindPFlag("server.host", fs.Lookup("host"))
}

// bindBuildFlags registers the composition flags shared by build and serve.
func bindBuildFlags(fs *pflag.FlagSet) {
	fs.Bool("concurrent", false, "fetch remote components and data concurrently")

	_ = viper.BindPFlag("build.concurrent", fs.Lookup("concurrent"))
}
