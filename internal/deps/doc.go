// Package deps resolves the external binaries batchscribe shells out to.
package deps
