package testmod

func Broken( {
