package docs

//go:generate swag init --dir ../ --generalInfo cmd/api/main.go --output . --outputTypes go --parseInternal
